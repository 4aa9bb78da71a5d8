package model

type named struct {
	est interface{}
	nam string
}

// Named attaches an explicit name to an estimator, overriding the name
// derived from its type. The returned value can be passed wherever an
// estimator is accepted.
func Named(nam string, est interface{}) interface{} {
	return named{est: est, nam: nam}
}

func unwrap(est interface{}) (string, interface{}) {
	n, ok := est.(named)
	if !ok {
		return "", est
	}

	return n.nam, n.est
}
