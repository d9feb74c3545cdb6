package main

import "github.com/kashguard/go-eos-signer/cmd"

func main() {
	cmd.Execute()
}
