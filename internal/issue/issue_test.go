// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestIssues_HaveDocLinks(t *testing.T) {
	t.Parallel()

	for _, id := range []Id{GameNotFoundID, MirrorsExhaustedID, VerifyFailedID, ConfigLoadFailedID} {
		i := Get(id)
		if i == nil {
			t.Fatalf("Get(%d) = nil", id)
		}
		md := i.Markdown()
		if !strings.HasPrefix(strings.TrimSpace(md), "# ") {
			t.Errorf("issue %d should start with a heading:\n%s", id, md)
		}
		if !strings.Contains(md, "## See also\n- [https://") {
			t.Errorf("issue %d has no doc links:\n%s", id, md)
		}
	}
	if len(issues) != 4 {
		t.Errorf("%d issues registered, want 4", len(issues))
	}
}

func TestIssue_WithDetailsDoesNotMutate(t *testing.T) {
	t.Parallel()

	base := Get(MirrorsExhaustedID)
	withDetails := base.WithDetails("https://a.example/master.zip", "https://b.example/master.zip")

	md := withDetails.Markdown()
	if !strings.Contains(md, "## Details") || !strings.Contains(md, "- https://b.example/master.zip") {
		t.Errorf("details not rendered:\n%s", md)
	}
	if strings.Contains(base.Markdown(), "## Details") {
		t.Error("WithDetails mutated the registered issue")
	}
}

func TestIssue_Render(t *testing.T) {
	// Not parallel: replaces the package-level render seam.
	saved := render
	t.Cleanup(func() { render = saved })

	var gotStyle, gotMarkdown string
	render = func(in, stylePath string) (string, error) {
		gotMarkdown, gotStyle = in, stylePath
		return "rendered", nil
	}

	out, err := Get(GameNotFoundID).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != "rendered" || gotStyle != "notty" {
		t.Errorf("Render() = %q with style %q", out, gotStyle)
	}
	if !strings.Contains(gotMarkdown, "## See also") {
		t.Errorf("rendered markdown should include doc links:\n%s", gotMarkdown)
	}
}

func TestGet_Unknown(t *testing.T) {
	t.Parallel()

	if Get(Id(999)) != nil {
		t.Error("Get(999) should return nil")
	}
}
