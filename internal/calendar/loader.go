package calendar

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a calendar YAML file.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cal Calendar
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cal); err != nil {
		return nil, err
	}

	if err := Validate(&cal); err != nil {
		return nil, err
	}

	return &cal, nil
}

// Hash generates a SHA256 fingerprint from the Calendar (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cal *Calendar) (string, error) {
	jsonBytes, err := json.Marshal(cal)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
