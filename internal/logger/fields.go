package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log field keys.
const (
	FieldProvider      = "ai_provider"
	FieldModel         = "ai_model"
	FieldApplicationID = "application_id"
	FieldReviewer      = "reviewer"
	FieldStance        = "bias_stance"
	FieldStage         = "stage"
)

// StringField is a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields. Keys and values are trimmed
// and pairs with an empty key or value are dropped.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// CommonFields describes the text-generation provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the provider and model fields to logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// ForApplication scopes logger to one evaluated application.
func ForApplication(logger *zap.Logger, applicationID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldApplicationID, Value: applicationID})...)
}

// ForReviewer scopes logger to one reviewer persona.
func ForReviewer(logger *zap.Logger, name, stance string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldReviewer, Value: name},
		StringField{Key: FieldStance, Value: stance},
	)...)
}

// ForStage scopes logger to one evaluation stage.
func ForStage(logger *zap.Logger, stage string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldStage, Value: stage})...)
}
