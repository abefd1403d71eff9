package pipeline

import (
	"os"
	"testing"

	"kkj-match-go/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init("error", "json", "")
	os.Exit(m.Run())
}
