package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "DirectiveWelcome")
	want := "Welcome! Start by adding a new topic to generate your personal AI revision plan."
	if got != want {
		t.Errorf("T(DirectiveWelcome) = %q, want %q", got, want)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "ErrTopicNotFound")
	if got != "Тема не найдена" {
		t.Errorf("T(ErrTopicNotFound) = %q, want 'Тема не найдена'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	tests := []struct {
		lang string
		id   string
		want string
	}{
		{"en", "DirectiveFocusWeak", "Priority Focus: Review Optics today to strengthen your weak areas."},
		{"en", "DirectiveSteady", "Steady Progress: Continue practicing Optics to reach mastery."},
		{"en", "DirectiveMaintain", "You're doing great! Maintain your streak with a quick review of Optics."},
		{"ru", "DirectiveSteady", "Хороший прогресс: продолжайте практиковать тему «Optics», чтобы довести её до уверенного уровня."},
	}
	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.id, func(t *testing.T) {
			ctx := initLang(t, tt.lang)
			got := Td(ctx, tt.id, map[string]any{"Topic": "Optics"})
			if got != tt.want {
				t.Errorf("Td(%s) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "TopicsDue", 1); got != "1 topic due for review." {
		t.Errorf("Tp(TopicsDue, 1) = %q", got)
	}
	if got := Tp(ctx, "TopicsDue", 5); got != "5 topics due for review." {
		t.Errorf("Tp(TopicsDue, 5) = %q", got)
	}

	ru := initLang(t, "ru")
	if got := Tp(ru, "TopicsDue", 5); got != "5 тем ждут повторения." {
		t.Errorf("Tp(TopicsDue, 5) ru = %q", got)
	}
}

func TestUnknownLanguageFallsBack(t *testing.T) {
	ctx := initLang(t, "de")

	got := T(ctx, "ErrTopicNotFound")
	if got != "Topic not found" {
		t.Errorf("T(ErrTopicNotFound) = %q, want English fallback", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "ErrTopicNotFound")
	}))

	tests := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{"default", "/", "", "Topic not found"},
		{"accept language", "/", "ru-RU,ru;q=0.9", "Тема не найдена"},
		{"query wins", "/?lang=en", "ru", "Topic not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
