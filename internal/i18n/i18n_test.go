package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateSpanish(t *testing.T) {
	ctx := initLang(t, "es")

	got := T(ctx, "NotFound")
	if got != "recurso no encontrado" {
		t.Errorf("T(NotFound) = %q, want 'recurso no encontrado'", got)
	}

	got = T(ctx, "AlreadyPublished")
	if got != "el quiz ya fue publicado" {
		t.Errorf("T(AlreadyPublished) = %q, want 'el quiz ya fue publicado'", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NotFound")
	if got != "resource not found" {
		t.Errorf("T(NotFound) = %q, want 'resource not found'", got)
	}

	got = T(ctx, "Unauthorized")
	if got != "not authenticated" {
		t.Errorf("T(Unauthorized) = %q, want 'not authenticated'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "es")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackWithoutLocalizer(t *testing.T) {
	if err := Init("es"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// A bare context falls back to the default language.
	got := T(context.Background(), "NotFound")
	if got != "recurso no encontrado" {
		t.Errorf("T without localizer = %q, want Spanish fallback", got)
	}
}
