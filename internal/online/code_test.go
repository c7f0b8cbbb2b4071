package online

import (
	"strings"
	"testing"
)

func TestGenerateRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateRoomCode()
		if len(code) != roomCodeLength {
			t.Fatalf("ожидался код из %d символов, получили %q", roomCodeLength, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(roomCodeAlphabet, r) {
				t.Fatalf("символ %q вне алфавита", r)
			}
		}
		seen[code] = true
	}
	// коллизии на 100 кодах из 32^6 практически исключены
	if len(seen) < 99 {
		t.Fatalf("слишком много повторов: %d уникальных из 100", len(seen))
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	if got := NormalizeRoomCode("  ab12cd "); got != "AB12CD" {
		t.Fatalf("ожидался AB12CD, получили %q", got)
	}
}

func TestInviteLinkRoundTrip(t *testing.T) {
	link := InviteLink("https://pig.example.com/play", "ab12cd")
	if got := RoomCodeFromURL(link); got != "AB12CD" {
		t.Fatalf("код не пережил путь через ссылку: %q из %q", got, link)
	}
}

func TestRoomCodeFromURL_Missing(t *testing.T) {
	if got := RoomCodeFromURL("https://pig.example.com/play"); got != "" {
		t.Fatalf("без параметра room ожидалась пустая строка, получили %q", got)
	}
}
