package net

import (
	"fmt"

	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// Success creates a successful result
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure creates a failed result
func Failure(message string) (*types.Result, error) {
	return &types.Result{
		Success: false,
		Error:   &types.Error{Message: message},
	}, nil
}

// FailureAt creates a failed result tied to a request target
func FailureAt(url, message string) (*types.Result, error) {
	return &types.Result{
		Success: false,
		Error:   &types.Error{URL: url, Message: message},
	}, nil
}

// GetString extracts string parameter
func GetString(params map[string]interface{}, key string, required bool) (string, error) {
	val, ok := params[key]
	if !ok || val == nil {
		if required {
			return "", fmt.Errorf("%s parameter required", key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be string", key)
	}

	if required && str == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}

	return str, nil
}

// GetMap extracts map parameter
func GetMap(params map[string]interface{}, key string) map[string]interface{} {
	val, ok := params[key]
	if !ok {
		return nil
	}

	m, ok := val.(map[string]interface{})
	if !ok {
		return nil
	}

	return m
}

// GetArray extracts array parameter
func GetArray(params map[string]interface{}, key string) []interface{} {
	val, ok := params[key]
	if !ok {
		return nil
	}

	arr, ok := val.([]interface{})
	if !ok {
		return nil
	}

	return arr
}
