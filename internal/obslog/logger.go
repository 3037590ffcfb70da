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

package obslog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is a bag of structured key/value context attached to a log entry.
type Fields map[string]any

// Logger writes leveled entries split across two writers by severity.
type Logger struct {
	base    *logrus.Logger
	fields  Fields
	minimum Level
}

// New builds a Logger writing InfoLevel and below to out, and WarnLevel and
// above to errOut. Passing the same writer for both collapses to a single
// stream, which is how the two binaries behave when run interactively.
func New(out, errOut io.Writer, minimum Level) *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	base.SetLevel(logrus.TraceLevel)
	base.AddHook(newStreamHook(out, []logrus.Level{logrus.InfoLevel, logrus.DebugLevel, logrus.TraceLevel}))
	base.AddHook(newStreamHook(errOut, []logrus.Level{logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}))

	return &Logger{base: base, minimum: minimum}
}

// NewStandard is the construction both cmd/ entrypoints use: info and below
// to stdout, warn and above to stderr.
func NewStandard(minimum Level) *Logger {
	return New(os.Stdout, os.Stderr, minimum)
}

// With returns a copy of the Logger with additional fields merged in,
// leaving the receiver untouched so call sites can build a request-scoped
// logger from a shared base without mutating the shared one.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{base: l.base, fields: merged, minimum: l.minimum}
}

func (l *Logger) log(lvl Level, msg string) {
	if lvl > l.minimum {
		return
	}
	entry := l.base.WithFields(logrus.Fields(l.fields))
	entry.Log(lvl.Logrus(), msg)
}

func (l *Logger) Debug(msg string) { l.log(DebugLevel, msg) }
func (l *Logger) Info(msg string)  { l.log(InfoLevel, msg) }
func (l *Logger) Warn(msg string)  { l.log(WarnLevel, msg) }
func (l *Logger) Error(msg string) { l.log(ErrorLevel, msg) }

// Fatal logs at FatalLevel and terminates the process, for an unrecoverable
// setup failure reported just before a non-zero exit.
func (l *Logger) Fatal(msg string) {
	l.log(FatalLevel, msg)
	os.Exit(1)
}
