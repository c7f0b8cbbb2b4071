package service

import (
	"testing"
)

func TestGuestToken_RoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	userID, token, err := IssueGuestToken()
	if err != nil {
		t.Fatalf("выдача токена: %v", err)
	}
	if userID < 0 {
		t.Fatalf("идентификатор должен быть неотрицательным, получили %d", userID)
	}
	if token == "" {
		t.Fatalf("ожидался непустой токен")
	}

	parsed, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("разбор токена: %v", err)
	}
	if parsed != userID {
		t.Fatalf("ожидался user_id %d, получили %d", userID, parsed)
	}
}

func TestParseJWT_Tampered(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	_, token, err := IssueGuestToken()
	if err != nil {
		t.Fatalf("выдача токена: %v", err)
	}

	if _, err := ParseJWT(token + "x"); err == nil {
		t.Fatalf("испорченный токен должен отклоняться")
	}
	if _, err := ParseJWT("not-a-token"); err == nil {
		t.Fatalf("мусор вместо токена должен отклоняться")
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	InitJWT()
	_, token, err := IssueGuestToken()
	if err != nil {
		t.Fatalf("выдача токена: %v", err)
	}

	t.Setenv("JWT_SECRET", "secret-two")
	InitJWT()
	if _, err := ParseJWT(token); err == nil {
		t.Fatalf("токен с чужой подписью должен отклоняться")
	}
}

func TestIssueGuestToken_UniqueIDs(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	seen := make(map[int64]bool)
	for i := 0; i < 50; i++ {
		id, _, err := IssueGuestToken()
		if err != nil {
			t.Fatalf("выдача токена: %v", err)
		}
		if seen[id] {
			t.Fatalf("идентификаторы гостей не должны повторяться")
		}
		seen[id] = true
	}
}
