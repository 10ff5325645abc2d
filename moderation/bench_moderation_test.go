package moderation

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/mama165/sdk-go/logs"
)

func BenchmarkModerator_Censor(b *testing.B) {
	log := logs.GetLoggerFromLevel(slog.LevelError)
	dictionary := make([]string, 0, 10_000)
	for i := 0; i < 10_000; i++ {
		dictionary = append(dictionary, fmt.Sprintf("word%dx", i))
	}
	mod, err := NewModerator(dictionary, replacementChar, log)
	if err != nil {
		b.Fatal(err)
	}
	content := strings.Repeat("gm frens, this token is word42x and totally safe ", 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mod.Censor(content)
	}
}
