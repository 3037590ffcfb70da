/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package apperr

import "fmt"

// Error pairs a Code with a message and an optional parent. It implements
// the standard error interface so call sites can still use errors.Is/As,
// while CodeOf lets a caller recover the code without a type assertion
// chain.
type Error interface {
	error
	Code() Code
	Unwrap() error
}

type appErr struct {
	code    Code
	message string
	parent  error
}

func (e *appErr) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("%s: %v", e.message, e.parent)
	}
	return e.message
}

func (e *appErr) Code() Code {
	return e.code
}

func (e *appErr) Unwrap() error {
	return e.parent
}

// New builds an Error carrying code and message with no parent.
func New(code Code, message string) Error {
	return &appErr{code: code, message: message}
}

// Newf builds an Error from a format string, the way fmt.Errorf does.
func Newf(code Code, format string, args ...any) Error {
	return &appErr{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code to an existing error, preserving it as the parent for
// Unwrap/errors.Is.
func Wrap(code Code, err error) Error {
	if err == nil {
		return nil
	}
	return &appErr{code: code, message: err.Error(), parent: err}
}

// CodeOf recovers the Code carried by err, or Unknown if err is nil or does
// not implement Error.
func CodeOf(err error) Code {
	if err == nil {
		return Unknown
	}
	if e, ok := err.(Error); ok {
		return e.Code()
	}
	return Unknown
}
