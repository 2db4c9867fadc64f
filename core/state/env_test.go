package state

import "fmt"

func ExampleNewMapEnvFromEnvList() {
	env := NewMapEnvFromEnvList([]string{"C=D", "A=B", "E", "F=G=H", "=ignored"})

	fmt.Printf("Environ(): %q\n", env.Environ())
	fmt.Printf("Getenv(\"F\"): %q\n", env.Getenv("F"))

	// Output: Environ(): ["A=B" "C=D" "E=" "F=G=H"]
	// Getenv("F"): "G=H"
}

func ExampleMapEnv_Unsetenv() {
	env := NewMapEnv()
	env.Setenv("A", "B")
	env.Setenv("C", "D")

	fmt.Println("Before:", env.Environ())
	env.Unsetenv("A")
	fmt.Println("After:", env.Environ())

	// Output: Before: [A=B C=D]
	// After: [C=D]
}

func ExampleMapEnv_LookupEnv() {
	env := NewMapEnv()
	env.Setenv("A", "")

	val, ok := env.LookupEnv("A")
	fmt.Printf("Existing val: %q ok: %v\n", val, ok)
	val, ok = env.LookupEnv("B")
	fmt.Printf("Missing val: %q ok: %v\n", val, ok)

	// Output: Existing val: "" ok: true
	// Missing val: "" ok: false
}

func ExampleMapEnv_ExpandEnv() {
	env := NewMapEnv()
	env.Setenv("HOME", "/home/user")

	fmt.Println(env.ExpandEnv("$HOME/bin:${HOME}/.local/bin:$UNSET"))

	// Output: /home/user/bin:/home/user/.local/bin:
}
