package security

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "プレーンテキストはそのまま", input: "Run", want: "Run"},
		{name: "前後の空白を除去", input: "  Run 5km  ", want: "Run 5km"},
		{name: "タグを除去", input: "<b>Run</b>", want: "Run"},
		{name: "scriptを内容ごと除去", input: "Run<script>alert(1)</script>", want: "Run"},
		{name: "イベント属性を除去", input: `<img src=x onerror="alert(1)">Read`, want: "Read"},
		{name: "アンパサンドを保持", input: "Read & write", want: "Read & write"},
		{name: "日本語を保持", input: "<p>毎朝ストレッチ</p>", want: "毎朝ストレッチ"},
		{name: "空文字列", input: "", want: ""},
		{name: "タグのみ", input: "<br>", want: ""},
		{name: "エスケープされたscriptを除去", input: "&lt;script&gt;alert(1)&lt;/script&gt;", want: ""},
		{name: "エスケープされたタグを除去", input: "&lt;b&gt;Run&lt;/b&gt;", want: "Run"},
		{name: "二重エスケープされたタグを除去", input: "&amp;lt;i&amp;gt;Walk&amp;lt;/i&amp;gt;", want: "Walk"},
		{name: "タグでない不等号を保持", input: "sleep &lt; 7h", want: "sleep < 7h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitize_Idempotent は出力を再度サニタイズしても変化しないことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()
	inputs := []string{
		"<em>Drink</em> water & stretch",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&lt;b&gt;Run&lt;/b&gt; &amp; rest",
		"&amp;lt;img src=x onerror=alert(1)&amp;gt;Read",
		"sleep &lt; 7h",
	}

	for _, input := range inputs {
		first := sanitizer.Sanitize(input)
		second := sanitizer.Sanitize(first)
		if first != second {
			t.Errorf("Sanitize is not idempotent for %q: %q != %q", input, first, second)
		}
		if strings.Contains(strings.ToLower(first), "<script") || strings.Contains(strings.ToLower(first), "<img") {
			t.Errorf("Sanitize(%q) = %q, markup must not survive", input, first)
		}
	}
}

func TestNewTextSanitizer_ImplementsInterface(t *testing.T) {
	var _ TextSanitizerService = NewTextSanitizer()
}
