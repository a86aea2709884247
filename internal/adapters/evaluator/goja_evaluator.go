// Package evaluator executa expressões JavaScript já aprovadas pelo gate.
// O runtime não expõe require, process nem módulos do host.
package evaluator

import (
	"context"
	"errors"
	"time"

	"github.com/dop251/goja"

	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

const DefaultTimeout = time.Second

type GojaEvaluator struct {
	timeout time.Duration
}

var _ ports.Evaluator = (*GojaEvaluator)(nil)

func NewGojaEvaluator(timeout time.Duration) *GojaEvaluator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GojaEvaluator{timeout: timeout}
}

// Evaluate roda a expressão num runtime novo e converte o resultado com String().
func (e *GojaEvaluator) Evaluate(ctx context.Context, expression string) (string, error) {
	vm := goja.New()

	timer := time.AfterFunc(e.timeout, func() { vm.Interrupt("evaluation timed out") })
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() { vm.Interrupt("evaluation cancelled") })
	defer stop()

	value, err := vm.RunString(expression)
	if err != nil {
		return "", errors.New(exceptionMessage(err))
	}
	return value.String(), nil
}

// exceptionMessage devolve apenas a mensagem da exceção, sem a pilha.
func exceptionMessage(err error) string {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if s, ok := interrupted.Value().(string); ok {
			return s
		}
		return err.Error()
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		if obj, ok := ex.Value().(*goja.Object); ok {
			if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
				return msg.String()
			}
		}
		return ex.Value().String()
	}
	return err.Error()
}
