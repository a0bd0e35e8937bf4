package sampling

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is a univariate distribution usable for inverse transform
// sampling.
type Distribution interface {
	Quantile(p float64) float64
	CDF(x float64) float64
	Prob(x float64) float64
}

// Supported distribution names and their parameters:
//
//	Uniform      min, max
//	Normal       mean, stddev
//	Lognormal    mu, sigma (of the underlying normal)
//	Weibull      shape k, scale lambda
//	Beta         alpha, beta
//	Exponential  rate
//	Gamma        shape alpha, rate beta
var paramCounts = map[string]int{
	"uniform":     2,
	"normal":      2,
	"lognormal":   2,
	"weibull":     2,
	"beta":        2,
	"exponential": 1,
	"gamma":       2,
}

// ParseDistribution builds a distribution from its name and parameters.
func ParseDistribution(name string, params []float64) (Distribution, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	want, ok := paramCounts[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: Uniform, Normal, Lognormal, Weibull, Beta, Exponential, Gamma)",
			ErrUnknownDistribution, name)
	}
	if len(params) != want {
		return nil, fmt.Errorf("%w: %s takes %d parameters, got %d", ErrInvalidParameters, name, want, len(params))
	}

	switch key {
	case "uniform":
		if params[1] <= params[0] {
			return nil, fmt.Errorf("%w: uniform needs min < max", ErrInvalidParameters)
		}
		return distuv.Uniform{Min: params[0], Max: params[1]}, nil
	case "normal":
		if params[1] <= 0 {
			return nil, fmt.Errorf("%w: normal stddev must be positive", ErrInvalidParameters)
		}
		return distuv.Normal{Mu: params[0], Sigma: params[1]}, nil
	case "lognormal":
		if params[1] <= 0 {
			return nil, fmt.Errorf("%w: lognormal sigma must be positive", ErrInvalidParameters)
		}
		return distuv.LogNormal{Mu: params[0], Sigma: params[1]}, nil
	case "weibull":
		if params[0] <= 0 || params[1] <= 0 {
			return nil, fmt.Errorf("%w: weibull shape and scale must be positive", ErrInvalidParameters)
		}
		return distuv.Weibull{K: params[0], Lambda: params[1]}, nil
	case "beta":
		if params[0] <= 0 || params[1] <= 0 {
			return nil, fmt.Errorf("%w: beta parameters must be positive", ErrInvalidParameters)
		}
		return distuv.Beta{Alpha: params[0], Beta: params[1]}, nil
	case "exponential":
		if params[0] <= 0 {
			return nil, fmt.Errorf("%w: exponential rate must be positive", ErrInvalidParameters)
		}
		return distuv.Exponential{Rate: params[0]}, nil
	default:
		if params[0] <= 0 || params[1] <= 0 {
			return nil, fmt.Errorf("%w: gamma parameters must be positive", ErrInvalidParameters)
		}
		return distuv.Gamma{Alpha: params[0], Beta: params[1]}, nil
	}
}

// ParseSpec parses "Name:p1,p2" as accepted on the command line.
func ParseSpec(spec string) (Distribution, error) {
	name, rest, _ := strings.Cut(spec, ":")
	var params []float64
	if rest != "" {
		for _, f := range strings.Split(rest, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrInvalidParameters, spec, err)
			}
			params = append(params, v)
		}
	}
	return ParseDistribution(name, params)
}
