//go:build windows

package regstore

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// winStore implements Store against the live registry.
type winStore struct {
	root registry.Key
}

// Open returns a Store rooted at the hive for the given scope.
func Open(scope Scope) Store {
	if scope == MachineScope {
		return &winStore{root: registry.LOCAL_MACHINE}
	}
	return &winStore{root: registry.CURRENT_USER}
}

func (s *winStore) ReadString(key, name string) (string, error) {
	k, err := registry.OpenKey(s.root, key, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", ErrNotExist
		}
		return "", fmt.Errorf("opening key %s: %w", key, err)
	}
	defer k.Close()

	v, _, err := k.GetStringValue(name)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", ErrNotExist
		}
		return "", fmt.Errorf("reading %s\\%s: %w", key, name, err)
	}
	return v, nil
}

func (s *winStore) WriteString(key, name, value string) error {
	k, _, err := registry.CreateKey(s.root, key, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("creating key %s: %w", key, err)
	}
	defer k.Close()

	if err := k.SetStringValue(name, value); err != nil {
		return fmt.Errorf("writing %s\\%s: %w", key, name, err)
	}
	return nil
}

func (s *winStore) WriteDWord(key, name string, value uint32) error {
	k, _, err := registry.CreateKey(s.root, key, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("creating key %s: %w", key, err)
	}
	defer k.Close()

	if err := k.SetDWordValue(name, value); err != nil {
		return fmt.Errorf("writing %s\\%s: %w", key, name, err)
	}
	return nil
}

func (s *winStore) DeleteValue(key, name string) error {
	k, err := registry.OpenKey(s.root, key, registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening key %s: %w", key, err)
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("deleting %s\\%s: %w", key, name, err)
	}
	return nil
}

func (s *winStore) DeleteKey(key string) error {
	if err := registry.DeleteKey(s.root, key); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

func (s *winStore) HasValue(key, name string) bool {
	k, err := registry.OpenKey(s.root, key, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer k.Close()

	_, _, err = k.GetValue(name, nil)
	return err == nil
}
