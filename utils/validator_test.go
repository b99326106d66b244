package utils

import "testing"

func TestValidateORCID(t *testing.T) {
	valid := []string{"0000-0002-1825-0097", "0000-0001-5109-3700", "0000-0002-1694-233X"}
	for _, id := range valid {
		if !ValidateORCID(id) {
			t.Errorf("%s must validate", id)
		}
	}

	invalid := []string{"", "0000-0002-1825-009", "0000-0002-1825-00971", "0000_0002_1825_0097", "0000-0002-1825-009x"}
	for _, id := range invalid {
		if ValidateORCID(id) {
			t.Errorf("%s must not validate", id)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ok, msg := ValidatePassword("short"); ok || msg == "" {
		t.Error("short password must be rejected with a message")
	}
	if ok, msg := ValidatePassword("long enough"); !ok || msg != "" {
		t.Errorf("got (%v, %q) want (true, \"\")", ok, msg)
	}
}
