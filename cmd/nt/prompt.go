package main

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

var errAborted = errors.New("aborted")

func huhTitle(label string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(label).
		Value(&value).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("title cannot be empty")
			}
			return nil
		}).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return "", errAborted
	}
	return strings.TrimSpace(value), err
}

func huhConfirm(question string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Delete").
		Negative("Keep").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
