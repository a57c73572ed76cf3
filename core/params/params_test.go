package params

import (
	"reflect"
	"testing"
)

// TestParseTokenization verifies shell-like argument splitting.
func TestParseTokenization(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   \t ", nil},
		{"plain words", "-v --listen :8080", []string{"-v", "--listen", ":8080"}},
		{"double quoted", `--name "hello world"`, []string{"--name", "hello world"}},
		{"single quoted", `--name 'hello world'`, []string{"--name", "hello world"}},
		{"empty quotes", `--flag ""`, []string{"--flag", ""}},
		{"escaped quote", `--msg "say \"hi\""`, []string{"--msg", `say "hi"`}},
		{"escaped backslash", `--path "C:\\tmp"`, []string{"--path", `C:\tmp`}},
		{"mixed forms", `run 'a b' "c d" e`, []string{"run", "a b", "c d", "e"}},
		{"extra spacing", "  a   b  ", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			got := cl.Args()
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestParseErrors verifies malformed input is rejected.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated double quote", `--name "oops`},
		{"unterminated single quote", `--name 'oops`},
		{"stray quote", `a"b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err == nil {
				t.Errorf("Parse(%q) should fail", tt.input)
			}
		})
	}
}

// TestExpand verifies macro substitution.
func TestExpand(t *testing.T) {
	x := Expansion{ModuleName: "app-main", ConfigName: "server", ProjectName: "demo"}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"module macro", "--module $MODULE_NAME$", []string{"--module", "app-main"}},
		{"all macros", "$PROJECT_NAME$/$CONFIG_NAME$/$MODULE_NAME$", []string{"demo/server/app-main"}},
		{"inside double quotes", `--msg "run $CONFIG_NAME$ now"`, []string{"--msg", "run server now"}},
		{"single quotes literal", `--msg '$CONFIG_NAME$'`, []string{"--msg", "$CONFIG_NAME$"}},
		{"embedded", "prefix-$MODULE_NAME$-suffix", []string{"prefix-app-main-suffix"}},
		{"lone dollar untouched", "a$b $$", []string{"a$b", "$$"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			got, unknown := cl.Expand(x)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expand = %q, want %q", got, tt.want)
			}
			if len(unknown) != 0 {
				t.Errorf("unknown = %q, want none", unknown)
			}
		})
	}
}

// TestExpandUnknown verifies unknown macros stay verbatim and are
// reported once each.
func TestExpandUnknown(t *testing.T) {
	cl, err := Parse("$BOGUS$ $MODULE_NAME$ $BOGUS$ $OTHER$")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	args, unknown := cl.Expand(Expansion{ModuleName: "app-main"})
	want := []string{"$BOGUS$", "app-main", "$BOGUS$", "$OTHER$"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Expand = %q, want %q", args, want)
	}
	if !reflect.DeepEqual(unknown, []string{"BOGUS", "OTHER"}) {
		t.Errorf("unknown = %q, want [BOGUS OTHER]", unknown)
	}
}

// TestExpandEmptyValue verifies known macros expand even when the
// context value is empty.
func TestExpandEmptyValue(t *testing.T) {
	cl, err := Parse("--module=$MODULE_NAME$")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	args, unknown := cl.Expand(Expansion{})
	if !reflect.DeepEqual(args, []string{"--module="}) {
		t.Errorf("Expand = %q, want [--module=]", args)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %q, want none", unknown)
	}
}
