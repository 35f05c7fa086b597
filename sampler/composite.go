// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package sampler // import "github.com/signalfold/otelkit/sampler"

import (
	"errors"
	"strings"
)

// Operator combines the decisions of a composite's children.
type Operator int

const (
	// AND samples only when every child agrees; the first Drop wins.
	AND Operator = iota
	// OR samples when any child does; the first RecordAndSample wins.
	OR
)

func (op Operator) String() string {
	if op == OR {
		return "or"
	}
	return "and"
}

type composite struct {
	op       Operator
	samplers []Sampler
}

// NewComposite combines samplers under op. AND short-circuits on the first
// Drop, OR on the first RecordAndSample; the attributes of every child that
// was evaluated are merged into the result in evaluation order.
func NewComposite(op Operator, samplers ...Sampler) (Sampler, error) {
	if len(samplers) == 0 {
		return nil, errors.New("sampler: composite requires at least one sampler")
	}
	if op != AND && op != OR {
		return nil, errors.New("sampler: unknown composite operator")
	}
	return composite{op: op, samplers: samplers}, nil
}

func (c composite) ShouldSample(p Parameters) Result {
	out := Result{}
	if c.op == AND {
		out.Decision = RecordAndSample
	} else {
		out.Decision = Drop
	}
	for _, s := range c.samplers {
		r := s.ShouldSample(p)
		out.Attributes = append(out.Attributes, r.Attributes...)
		switch c.op {
		case AND:
			if r.Decision == Drop {
				out.Decision = Drop
				return out
			}
			if r.Decision < out.Decision {
				out.Decision = r.Decision
			}
		case OR:
			if r.Decision == RecordAndSample {
				out.Decision = RecordAndSample
				return out
			}
			if r.Decision > out.Decision {
				out.Decision = r.Decision
			}
		}
	}
	return out
}

func (c composite) Description() string {
	descs := make([]string, len(c.samplers))
	for i, s := range c.samplers {
		descs[i] = s.Description()
	}
	return "Composite{" + c.op.String() + ":" + strings.Join(descs, ",") + "}"
}
