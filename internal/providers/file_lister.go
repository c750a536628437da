package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pratik-mahalle/amiaudit/internal/domain/resource"
)

// FileLister reads image records from a saved DescribeImages response. The
// file holds either {"Images": [...]} or a bare array.
type FileLister struct {
	path string
}

// NewFileLister creates a lister reading path
func NewFileLister(path string) *FileLister {
	return &FileLister{path: path}
}

// List implements resource.Lister. Images whose OwnerId does not match owner
// are dropped unless owner is empty or "self".
func (l *FileLister) List(ctx context.Context, owner string) ([]resource.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}

	records, err := ParseImageRecords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inventory file %s: %w", l.path, err)
	}

	if owner == "" || owner == "self" {
		return records, nil
	}

	out := records[:0]
	for _, rec := range records {
		if id, _ := rec[resource.KeyOwnerID].(string); id == "" || id == owner {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ParseImageRecords decodes a DescribeImages response or a bare image array
func ParseImageRecords(data []byte) ([]resource.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raw []map[string]interface{}
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	} else {
		var page struct {
			Images []map[string]interface{} `json:"Images"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, err
		}
		raw = page.Images
	}

	records := make([]resource.Record, 0, len(raw))
	for _, m := range raw {
		records = append(records, resource.Record(m))
	}
	return records, nil
}
