package supervise

import "testing"

func TestShellJoin(t *testing.T) {
	cases := []struct {
		name string
		argv []string
		want string
	}{
		{"bare words", []string{"echo", "hello"}, "echo hello"},
		{"space forces quotes", []string{"echo", "hello world"}, "echo 'hello world'"},
		{"single quote escapes", []string{"echo", "it's"}, `echo 'it'\''s'`},
		{"empty arg", []string{"printf", ""}, "printf ''"},
		{"safe punctuation stays bare", []string{"/usr/bin/env", "A=b", "x,y.z/w-3:+@%"}, "/usr/bin/env A=b x,y.z/w-3:+@%"},
		{"dollar quoted", []string{"echo", "$HOME"}, "echo '$HOME'"},
		{"double quote quoted", []string{"echo", `a"b`}, `echo 'a"b'`},
		{"glob quoted", []string{"ls", "*.log"}, "ls '*.log'"},
		{"newline quoted", []string{"printf", "a\nb"}, "printf 'a\nb'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShellJoin(tc.argv); got != tc.want {
				t.Fatalf("ShellJoin(%v) = %q, want %q", tc.argv, got, tc.want)
			}
		})
	}
}
