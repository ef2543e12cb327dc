package utils

import (
	"fmt"
	"testing"
)

func TestMust(t *testing.T) {
	tests := []struct {
		name      string
		obj       interface{}
		err       error
		wantPanic bool
	}{
		{
			name:      "success case",
			obj:       "test",
			err:       nil,
			wantPanic: false,
		},
		{
			name:      "panic case",
			obj:       nil,
			err:       fmt.Errorf("test error"),
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Error("Must() should have panicked but didn't")
					}
				}()
			}
			result := Must(tt.obj, tt.err)
			if !tt.wantPanic && result != tt.obj {
				t.Errorf("Must() = %v, want %v", result, tt.obj)
			}
		})
	}
}
