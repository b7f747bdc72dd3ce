// Package loader stores private keys in files, encoded in hexadecimal.
package loader

import (
	"encoding/hex"
	"os"
	"strings"

	"golang.org/x/xerrors"
)

// Generate returns the binary form of a new key.
type Generate func() ([]byte, error)

// Load reads the key stored in the file.
func Load(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read %s: %v", path, err)
	}

	return decode(path, raw)
}

// LoadOrCreate reads the key stored in the file, or generates one when the
// file does not exist. A created file is only readable by its owner.
func LoadOrCreate(path string, generate Generate) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return create(path, generate)
	}
	if err != nil {
		return nil, xerrors.Errorf("failed to read %s: %v", path, err)
	}

	return decode(path, raw)
}

func create(path string, generate Generate) ([]byte, error) {
	data, err := generate()
	if err != nil {
		return nil, xerrors.Errorf("failed to generate key: %v", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0400)
	if err != nil {
		return nil, xerrors.Errorf("failed to create %s: %v", path, err)
	}

	_, err = file.WriteString(hex.EncodeToString(data) + "\n")
	if err == nil {
		err = file.Close()
	} else {
		file.Close()
	}

	if err != nil {
		os.Remove(path)
		return nil, xerrors.Errorf("failed to write %s: %v", path, err)
	}

	return data, nil
}

func decode(path string, raw []byte) ([]byte, error) {
	data, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, xerrors.Errorf("malformed key in %s: %v", path, err)
	}

	return data, nil
}
