package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dropDatabas3/hellojwks/internal/security/secretbox"
	"github.com/joho/godotenv"
)

// enc genera una KEYS_MASTER_KEY nueva o valida la configurada.
func main() {
	check := flag.Bool("check", false, "Valida KEYS_MASTER_KEY (o SECRETBOX_MASTER_KEY) en vez de generar una")
	flag.Parse()

	if !*check {
		k := make([]byte, 32)
		if _, err := rand.Read(k); err != nil {
			log.Fatalf("random: %v", err)
		}
		fmt.Println(base64.StdEncoding.EncodeToString(k))
		return
	}

	_ = godotenv.Load(".env")
	key := os.Getenv("KEYS_MASTER_KEY")
	if key == "" {
		key = os.Getenv("SECRETBOX_MASTER_KEY")
	}
	if key == "" {
		log.Fatal("KEYS_MASTER_KEY not set")
	}
	box, err := secretbox.FromString(key)
	if err != nil {
		log.Fatalf("master key: %v", err)
	}
	sealed, err := box.Seal("probe")
	if err != nil {
		log.Fatalf("seal: %v", err)
	}
	if v, err := box.Open(sealed); err != nil || v != "probe" {
		log.Fatalf("open: %v", err)
	}
	fmt.Println("ok")
}
