package lightinject

// Func0[T] .. Func4[A,B,C,D,T] are the parameterized-factory structural
// shape: a parameter typed as one of these is recognized by the compiler
// (internal/compiler's funcEmitter, which duck-types any func(...)(T, error)
// shape — these named types are the idiomatic public spelling of that
// shape, not a special case the compiler hard-codes) and filled with a
// delegate that, when called, resolves T. The arguments it is called with
// are handed on as runtime arguments (see WithArgs), which constructor and
// factory calls do not read.
type (
	Func0[T any] func() (T, error)
	Func1[A, T any] func(A) (T, error)
	Func2[A, B, T any] func(A, B) (T, error)
	Func3[A, B, C, T any] func(A, B, C) (T, error)
	Func4[A, B, C, D, T any] func(A, B, C, D) (T, error)
)
