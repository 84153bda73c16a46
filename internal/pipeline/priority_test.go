package pipeline

import (
	"testing"

	"contentdex/internal/model"
)

func file(name string, size int64) model.FileInfo {
	return model.FileInfo{Name: name, Size: size, Ext: model.ExtOf(name)}
}

func TestPriorityBands(t *testing.T) {
	tests := []struct {
		name string
		fi   model.FileInfo
		want int
	}{
		{"small text", file("notes.txt", 1024), 1},
		{"office", file("report.docx", 1024), 3},
		{"pdf", file("paper.pdf", 1024), 5},
		{"image", file("scan.png", 1024), 7},
		{"archive", file("bundle.zip", 1024), 9},
		{"email", file("inbox.mbox", 1024), 9},
		{"unknown defaults mid-band", file("blob.xyz", 1024), 5},
		{"large text penalized", file("dump.txt", 15<<20), 3},
		{"large pdf penalized", file("atlas.pdf", 20<<20), 7},
		{"huge archive capped", file("backup.zip", 60<<20), 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Priority(tc.fi); got != tc.want {
				t.Errorf("Priority(%s, %d bytes) = %d, want %d", tc.fi.Name, tc.fi.Size, got, tc.want)
			}
		})
	}
}

func TestPoolRouting(t *testing.T) {
	tests := []struct {
		name string
		fi   model.FileInfo
		cpu  bool
	}{
		{"small text io", file("notes.txt", 1024), false},
		{"office io", file("report.xlsx", 1024), false},
		{"pdf cpu", file("paper.pdf", 1024), true},
		{"image cpu", file("scan.jpg", 1024), true},
		{"archive cpu", file("bundle.zip", 1024), true},
		{"email io despite band", file("mail.eml", 1024), false},
		{"large text cpu", file("dump.txt", 15<<20), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsCPUPool(tc.fi); got != tc.cpu {
				t.Errorf("NeedsCPUPool(%s) = %v, want %v", tc.fi.Name, got, tc.cpu)
			}
		})
	}
}

func TestBatchable(t *testing.T) {
	tests := []struct {
		name string
		fi   model.FileInfo
		want bool
	}{
		{"small txt", file("a.txt", 50<<10), true},
		{"small csv", file("a.csv", 10), true},
		{"small json", file("a.json", 10), true},
		{"at limit", file("a.txt", batchableMaxBytes), false},
		{"small pdf never", file("a.pdf", 10), false},
		{"small html not batched", file("a.html", 10), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Batchable(tc.fi); got != tc.want {
				t.Errorf("Batchable(%s) = %v, want %v", tc.fi.Name, got, tc.want)
			}
		})
	}
}
