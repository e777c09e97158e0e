// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"

	"github.com/aleutianlabs/testscope/internal/symbol"
)

var registerFQSValidatorOnce sync.Once

// registerFQSValidator teaches gin's request binder the "fqs" tag, backed
// by the same strfmt.Default format registry internal/symbol registers its
// "ns/name" grammar into (internal/symbol/format.go). MarkVerifiedRequest
// uses it on Tests so a malformed symbol is rejected at bind time with the
// same INVALID_REQUEST shape every other bad body gets, instead of reaching
// symbol.Parse deeper in HandleMarkVerified.
func registerFQSValidator() {
	registerFQSValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation(symbol.FormatName, func(fl validator.FieldLevel) bool {
			return strfmt.Default.Validates(symbol.FormatName, fl.Field().String())
		})
	})
}
