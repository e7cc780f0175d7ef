package logger

import "testing"

func TestRedactToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"EAABsbCS1234567890", "***7890"},
		{"short", "***"},
		{"", "***"},
		{"exactly8c", "***ly8c"},
	}
	for _, c := range cases {
		if got := RedactToken(c.in); got != c.want {
			t.Errorf("RedactToken(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRedactValuePicksSecretKeys(t *testing.T) {
	if got := redactValue("access_token", "EAABsbCS1234567890"); got != "***7890" {
		t.Errorf("access_token not redacted: %q", got)
	}
	if got := redactValue("store", "vironax"); got != "vironax" {
		t.Errorf("non-secret key redacted: %q", got)
	}
}
