package security

import (
	"strings"
	"testing"
)

// scriptタグが除去されることを検証
func TestSanitize_RemovesScriptTags(t *testing.T) {
	s := NewDescriptionSanitizer()

	input := `<p>A hero rises.</p><script>alert("xss")</script>`
	got := s.Sanitize(input)

	if strings.Contains(got, "<script") {
		t.Errorf("script tag was not removed: %q", got)
	}
	if !strings.Contains(got, "<p>A hero rises.</p>") {
		t.Errorf("allowed tag was removed: %q", got)
	}
}

// on*イベント属性が除去されることを検証
func TestSanitize_RemovesEventAttributes(t *testing.T) {
	s := NewDescriptionSanitizer()

	input := `<p onclick="steal()">Volume one.</p>`
	got := s.Sanitize(input)

	if strings.Contains(got, "onclick") {
		t.Errorf("onclick attribute was not removed: %q", got)
	}
}

// iframeタグが除去されることを検証
func TestSanitize_RemovesIframe(t *testing.T) {
	s := NewDescriptionSanitizer()

	input := `<iframe src="https://evil.example"></iframe><em>ongoing</em>`
	got := s.Sanitize(input)

	if strings.Contains(got, "<iframe") {
		t.Errorf("iframe tag was not removed: %q", got)
	}
	if !strings.Contains(got, "<em>ongoing</em>") {
		t.Errorf("allowed tag was removed: %q", got)
	}
}

// aタグにrel属性が付与されることを検証
func TestSanitize_AddsRelToLinks(t *testing.T) {
	s := NewDescriptionSanitizer()

	input := `<a href="https://example.com/series">series page</a>`
	got := s.Sanitize(input)

	if !strings.Contains(got, "noopener") {
		t.Errorf("rel=noopener was not added: %q", got)
	}
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("target=_blank was not added: %q", got)
	}
}

// javascriptスキームのリンクが除去されることを検証
func TestSanitize_RejectsJavascriptHref(t *testing.T) {
	s := NewDescriptionSanitizer()

	input := `<a href="javascript:alert(1)">click</a>`
	got := s.Sanitize(input)

	if strings.Contains(got, "javascript:") {
		t.Errorf("javascript: href was not removed: %q", got)
	}
}

// 空文字列には空文字列を返すことを検証
func TestSanitize_EmptyInput(t *testing.T) {
	s := NewDescriptionSanitizer()

	if got := s.Sanitize(""); got != "" {
		t.Errorf("expected empty output for empty input, got %q", got)
	}
}

// 同一入力に対して常に同一出力を返すこと（冪等性）を検証
func TestSanitize_Idempotent(t *testing.T) {
	s := NewDescriptionSanitizer()

	input := `<p>plot <strong>twist</strong></p><script>x</script>`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)

	if once != twice {
		t.Errorf("sanitize is not idempotent: first %q, second %q", once, twice)
	}
}
