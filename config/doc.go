// Copyright 2021 The apiconn Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the configuration from which a
// request manager is assembled.
//
// Configuration is layered, from lowest to highest priority: built-in
// defaults, YAML files in the order given to Load, and environment
// variables prefixed with APICONN_. In variable names a double
// underscore separates levels, so APICONN_TRANSPORT__TIMEOUT=10s sets
// transport.timeout and APICONN_MAX_RETRIES=5 sets max_retries.
package config
