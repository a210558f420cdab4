package validator

import (
	"fmt"
	"strings"

	"chatrelay/internal/model"
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateChatRequest(req *model.ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("message is required")
	}

	return nil
}
