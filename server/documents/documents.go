/*
 * Copyright 2022 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package documents

import (
	"context"

	"github.com/yorkie-team/sharenote/api/types"
	"github.com/yorkie-team/sharenote/server/backend"
	"github.com/yorkie-team/sharenote/server/backend/database"
)

// ListShareSummaries returns the summaries of the documents shared from the
// given note, oldest first.
func ListShareSummaries(
	ctx context.Context,
	be *backend.Backend,
	sourceKey string,
) ([]*types.ShareSummary, error) {
	infos, err := be.DB.FindDocInfosBySourceKey(ctx, sourceKey)
	if err != nil {
		return nil, err
	}

	summaries := make([]*types.ShareSummary, 0, len(infos))
	for _, info := range infos {
		summaries = append(summaries, ToShareSummary(info, ""))
	}

	return summaries, nil
}

// ToShareSummary converts the document info to its summary.
func ToShareSummary(info *database.DocInfo, text string) *types.ShareSummary {
	return &types.ShareSummary{
		Token:         info.Token,
		SourceKey:     info.SourceKey,
		Title:         info.Title,
		Status:        string(info.Status),
		CreatedAt:     info.CreatedAt,
		UpdatedAt:     info.UpdatedAt,
		DeactivatedAt: info.DeactivatedAt,
		Text:          text,
	}
}
