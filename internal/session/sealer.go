package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/bigkaa/dicri-console/internal/domain/model"
)

// Sealer шифрует Actor для слота сессии через AES-256-GCM.
type Sealer struct {
	gcm cipher.AEAD
}

// NewSealer создаёт Sealer.
// key — 32-байтовый ключ в base64 либо произвольная строка (хешируется SHA-256).
// Если key пустой — генерируется случайный ключ: сессия не переживёт рестарт.
func NewSealer(key string) (*Sealer, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			keyBytes = sha256Key(key)
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &Sealer{gcm: gcm}, nil
}

// Seal сериализует и шифрует Actor, возвращает base64-строку.
func (s *Sealer) Seal(actor *model.Actor) (string, error) {
	plaintext, err := json.Marshal(actor)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	// nonce в начале ciphertext
	ciphertext := s.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Open дешифрует base64-строку обратно в Actor.
func (s *Sealer) Open(sealed string) (*model.Actor, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := s.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var actor model.Actor
	if err := json.Unmarshal(plaintext, &actor); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	if actor.ID == 0 {
		return nil, errors.New("сессия без идентификатора пользователя")
	}

	return &actor, nil
}

// sha256Key хеширует строковый ключ в 32 bytes через SHA-256.
func sha256Key(key string) []byte {
	h := sha256.Sum256([]byte(key))
	return h[:]
}
