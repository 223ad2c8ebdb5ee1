// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"encoding/hex"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"
)

var cache *lru.Cache

var ErrCacheMiss = errors.New("key not found in cache")

// SetupCache initializes the transient in-memory cache. Entries are discarded
// when the process exits; nothing is ever persisted.
func SetupCache() {
	size := viper.GetInt("cache.local_size")
	if size == 0 {
		size = 128
	}

	var err error
	cache, err = lru.New(size)
	if err != nil {
		log.Panic().Err(err).Msg("could not create LRU cache")
	}
}

// CacheKey computes a stable key from the given parts
func CacheKey(parts ...string) string {
	sum := blake3.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// CacheSet compresses bytes and stores them under key
func CacheSet(key string, bytes []byte) error {
	if cache == nil {
		SetupCache()
	}

	b2, err := Compress(bytes)
	if err != nil {
		return err
	}
	cache.Add(key, b2)
	return nil
}

// CacheGet retrieves and decompresses the bytes stored under key
func CacheGet(key string) ([]byte, error) {
	if cache == nil {
		SetupCache()
	}

	val, ok := cache.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}

	b2, ok := val.([]byte)
	if !ok {
		return nil, ErrCacheMiss
	}

	return Decompress(b2)
}
