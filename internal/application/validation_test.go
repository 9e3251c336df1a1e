package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"trailbook/internal/adapters/memory"
	"trailbook/internal/domain"
	"trailbook/internal/history"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
		wantMsg   string
	}{
		{
			name:      "valid value",
			fieldName: "entityID",
			value:     "cell-1",
			wantErr:   false,
		},
		{
			name:      "empty string",
			fieldName: "entityID",
			value:     "",
			wantErr:   true,
			wantMsg:   "entityID: entity ID is required",
		},
		{
			name:      "whitespace only",
			fieldName: "nodeID",
			value:     "   ",
			wantErr:   true,
			wantMsg:   "nodeID: node ID is required",
		},
		{
			name:      "unknown field name",
			fieldName: "label",
			value:     "",
			wantErr:   true,
			wantMsg:   "label: label is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if valErr.Field != tt.fieldName {
					t.Errorf("expected field %s, got %s", tt.fieldName, valErr.Field)
				}
				if err.Error() != tt.wantMsg {
					t.Errorf("expected %q, got %q", tt.wantMsg, err.Error())
				}
			}
		})
	}
}

func TestResolveNode(t *testing.T) {
	ctx := context.Background()
	m, err := history.NewManager(ctx, "cell-1", memory.NewStore(), history.NewIndex())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Dispose()

	id, err := m.AddInteraction(ctx, domain.Interaction{ID: uuid.NewString(), Kind: domain.KindTest, Name: "a"}, "")
	if err != nil {
		t.Fatalf("AddInteraction failed: %v", err)
	}

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr error
	}{
		{name: "full id", ref: id, want: id},
		{name: "prefix", ref: id[:8], want: id},
		{name: "root", ref: "root", want: m.Root()},
		{name: "current", ref: "current", want: id},
		{name: "empty", ref: "", wantErr: nil},
		{name: "missing", ref: "no-such-node", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveNode(m, tt.ref)
			if tt.want == "" {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveNode(%q) = %s, want %s", tt.ref, got, tt.want)
			}
		})
	}
}

func TestAmbiguousIDError(t *testing.T) {
	err := error(&AmbiguousIDError{Prefix: "a", Matches: []string{"ab", "ac"}})
	if !errors.Is(err, ErrInvalidID) {
		t.Error("ambiguous prefix should be an invalid ID")
	}
	if err.Error() != `node ID "a" is ambiguous (2 matches)` {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestNavigationError(t *testing.T) {
	err := error(&NavigationError{EntityID: "cell-1", Reason: "already at the root", Err: history.ErrAtRoot})
	if !errors.Is(err, ErrInvalidOperation) {
		t.Error("navigation errors are invalid operations")
	}
	if !errors.Is(err, history.ErrAtRoot) {
		t.Error("navigation errors unwrap to their cause")
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("ShortID = %s", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID = %s", got)
	}
}
