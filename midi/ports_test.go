package midi

import (
	"errors"
	"testing"
)

func TestSelectPort(t *testing.T) {
	names := []string{"Midi Through Port-0", "Arturia KeyStep 32", "nanoKEY2 KEYBOARD"}

	tests := []struct {
		want string
		idx  int
		err  error
	}{
		{"", 0, nil},
		{"2", 2, nil},
		{"keystep", 1, nil},
		{"NANOKEY", 2, nil},
		{"Midi Through Port-0", 0, nil},
		{"  1 ", 1, nil},
		{"7", -1, ErrPortNotFound},
		{"-1", -1, ErrPortNotFound},
		{"launchpad", -1, ErrPortNotFound},
	}
	for _, tt := range tests {
		idx, err := SelectPort(names, tt.want)
		if idx != tt.idx || !errors.Is(err, tt.err) {
			t.Errorf("SelectPort(%q) = %d, %v; want %d, %v", tt.want, idx, err, tt.idx, tt.err)
		}
	}
}

func TestSelectPortEmpty(t *testing.T) {
	if _, err := SelectPort(nil, ""); !errors.Is(err, ErrNoInputPort) {
		t.Fatalf("err = %v, want ErrNoInputPort", err)
	}
	if !IsNoPort(ErrNoInputPort) || !IsNoPort(ErrPortNotFound) || IsNoPort(ErrPortTimeout) {
		t.Fatal("IsNoPort misclassifies")
	}
}
