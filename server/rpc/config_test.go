/*
 * Copyright 2021 The Yorkie Authors. All rights reserved.
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
package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yorkie-team/sharenote/server/rpc"
)

func newValidRPCConf() rpc.Config {
	return rpc.Config{
		Port:             8080,
		MaxRequestBytes:  4 * 1024 * 1024,
		PingInterval:     "30s",
		WriteTimeout:     "10s",
		InboundRateLimit: 100,
		InboundBurst:     200,
	}
}

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := newValidRPCConf()
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.Port = -1
		assert.ErrorIs(t, conf1.Validate(), rpc.ErrInvalidRPCPort)

		conf2 := validConf
		conf2.CertFile = "noSuchCertFile"
		assert.ErrorIs(t, conf2.Validate(), rpc.ErrInvalidCertFile)

		conf3 := validConf
		conf3.KeyFile = "noSuchKeyFile"
		assert.ErrorIs(t, conf3.Validate(), rpc.ErrInvalidKeyFile)

		conf4 := validConf
		conf4.PingInterval = "10 seconds"
		assert.Error(t, conf4.Validate())

		conf5 := validConf
		conf5.WriteTimeout = "0s"
		assert.Error(t, conf5.Validate())

		conf6 := validConf
		conf6.InboundBurst = 0
		assert.ErrorIs(t, conf6.Validate(), rpc.ErrInvalidInboundRateLimit)
	})

	t.Run("parse test", func(t *testing.T) {
		validConf := newValidRPCConf()
		assert.Equal(t, "30s", validConf.ParsePingInterval().String())
		assert.Equal(t, "10s", validConf.ParseWriteTimeout().String())
	})
}
