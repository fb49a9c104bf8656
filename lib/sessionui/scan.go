// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package sessionui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/termplex-foundation/termplex/lib/archive"
	"github.com/termplex-foundation/termplex/tcap"
)

// Session is one capture found on disk.
type Session struct {
	// Prefix is the path prefix replay commands take.
	Prefix string
	// Name is the prefix's basename, shown in the list.
	Name string

	Meta tcap.Meta

	// OutputBytes is the on-disk size of the stored output log, which
	// for a compacted capture is the compressed size.
	OutputBytes int64

	// Duration is the elapsed time of the last recorded output write.
	// Zero when the timing index is missing or empty.
	Duration time.Duration

	// Compacted reports whether an archive manifest exists.
	Compacted bool
}

const metaSuffix = ".meta.json"

// ScanDir finds every capture directly under dir, newest first. A
// capture is anything with a .meta.json file; damaged sidecars degrade
// the entry (zero duration, zero size) rather than hiding it, since
// the browser exists to find such sessions too.
func ScanDir(dir string) ([]Session, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var sessions []Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metaSuffix) {
			continue
		}
		prefix := filepath.Join(dir, strings.TrimSuffix(entry.Name(), metaSuffix))
		sessions = append(sessions, loadSession(prefix))
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Meta.StartedAtUnixNano != sessions[j].Meta.StartedAtUnixNano {
			return sessions[i].Meta.StartedAtUnixNano > sessions[j].Meta.StartedAtUnixNano
		}
		return sessions[i].Prefix < sessions[j].Prefix
	})
	return sessions, nil
}

// loadSession gathers the cheap per-session facts: the metadata file,
// the stored size of the output log, and the duration from the timing
// index. It never reads the raw logs themselves.
func loadSession(prefix string) Session {
	paths := tcap.SessionPaths(prefix)
	session := Session{Prefix: prefix, Name: filepath.Base(prefix)}

	if meta, err := tcap.ReadMeta(paths.Meta); err == nil {
		session.Meta = meta
	}
	session.OutputBytes = storedSize(paths.Output)
	if file, err := archive.Open(paths.OutputTiming); err == nil {
		// A torn index still yields its intact prefix; the last record
		// that survived is the best duration estimate available.
		_, records, _ := tcap.ReadTiming(file)
		file.Close()
		if len(records) > 0 {
			session.Duration = records[len(records)-1].Elapsed
		}
	}
	if _, err := os.Stat(paths.Archive); err == nil {
		session.Compacted = true
	}
	return session
}

// storedSize returns the on-disk size of path in whichever stored form
// exists, or zero.
func storedSize(path string) int64 {
	for _, candidate := range []string{path, path + ".zst", path + ".lz4"} {
		if info, err := os.Stat(candidate); err == nil {
			return info.Size()
		}
	}
	return 0
}
