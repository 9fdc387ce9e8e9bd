package pathenv

import (
	"testing"

	"github.com/frenzywall/excella-setup/internal/regstore"
)

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		path string
		dir  string
		want bool
	}{
		{"exact entry", `C:\Tools\Excella;C:\Windows`, `C:\Tools\Excella`, true},
		{"case insensitive", `c:\tools\excella`, `C:\Tools\Excella`, true},
		{"trailing backslash on entry", `C:\Tools\Excella\;C:\Windows`, `C:\Tools\Excella`, true},
		{"trailing backslash on query", `C:\Tools\Excella`, `C:\Tools\Excella\`, true},
		{"substring of longer entry", `C:\Tools\ExcellaPro`, `C:\Tools\Excella`, false},
		{"prefix entry", `C:\Tools`, `C:\Tools\Excella`, false},
		{"empty path", ``, `C:\Tools\Excella`, false},
		{"entry with surrounding spaces", ` C:\Tools\Excella ;C:\Windows`, `C:\Tools\Excella`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.path, tt.dir); got != tt.want {
				t.Errorf("Contains(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
			}
		})
	}
}

func TestAppend_Idempotent(t *testing.T) {
	p := Append(`C:\Windows`, `C:\Tools\Excella`)
	if p != `C:\Windows;C:\Tools\Excella` {
		t.Fatalf("first append = %q", p)
	}
	if again := Append(p, `C:\Tools\Excella`); again != p {
		t.Errorf("second append changed value: %q", again)
	}
	// Case-variant append is also a no-op.
	if again := Append(p, `c:\tools\excella\`); again != p {
		t.Errorf("case-variant append changed value: %q", again)
	}
}

func TestAppend_EmptyPath(t *testing.T) {
	if got := Append("", `C:\Tools\Excella`); got != `C:\Tools\Excella` {
		t.Errorf("Append on empty PATH = %q", got)
	}
}

func TestUserPath_EnsureAppended(t *testing.T) {
	store := regstore.NewMemStore()
	_ = store.WriteString(`Environment`, "Path", `C:\Windows;C:\Windows\system32`)
	up := NewUserPath(store)

	if !up.NeedsAppend(`C:\Tools\Excella`) {
		t.Fatal("NeedsAppend = false before append")
	}
	if err := up.EnsureAppended(`C:\Tools\Excella`); err != nil {
		t.Fatal(err)
	}
	if up.NeedsAppend(`C:\Tools\Excella`) {
		t.Error("NeedsAppend = true after append")
	}
	want := `C:\Windows;C:\Windows\system32;C:\Tools\Excella`
	if got := up.Value(); got != want {
		t.Errorf("Value = %q, want %q", got, want)
	}

	// Second append leaves the value untouched.
	if err := up.EnsureAppended(`C:\Tools\Excella`); err != nil {
		t.Fatal(err)
	}
	if got := up.Value(); got != want {
		t.Errorf("Value after re-append = %q, want %q", got, want)
	}
}

func TestUserPath_RemovePreservesOtherEntries(t *testing.T) {
	store := regstore.NewMemStore()
	_ = store.WriteString(`Environment`, "Path", `C:\Windows;C:\Tools\Excella;C:\Go\bin`)
	up := NewUserPath(store)

	if err := up.Remove(`C:\Tools\Excella`); err != nil {
		t.Fatal(err)
	}
	if got := up.Value(); got != `C:\Windows;C:\Go\bin` {
		t.Errorf("Value after remove = %q", got)
	}

	// Removing an absent entry does not rewrite the value.
	if err := up.Remove(`C:\Tools\Excella`); err != nil {
		t.Fatal(err)
	}
	if got := up.Value(); got != `C:\Windows;C:\Go\bin` {
		t.Errorf("Value after second remove = %q", got)
	}
}
