/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements book persistence and history.
// It handles create/open/save for the YAML book manifest (book.yaml) with transactional writes and timestamped backups.
// Each page layout inside the manifest is panel tree markup and is validated on load.
// It also manages the per-book embedded SQLite history at <book>/.gcp/history.sqlite holding committed book snapshots.
package storage
