package buildinfo

import "testing"

func TestInfoUsesStampedValues(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })
	Version, Commit = "1.2.3", "abc123"

	info := Info()
	if info["version"] != "1.2.3" || info["commit"] != "abc123" {
		t.Fatalf("unexpected info: %v", info)
	}
}
