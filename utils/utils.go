package utils

func Must[T any](obj T, err error) T {
	if err != nil {
		panic(err)
	}
	return obj
}

func MustWithoutOutput(err error) {
	if err != nil {
		panic(err)
	}
}
