package main

// @title Petstore
// @version 1.0
// @title Pets // want `@title overrides the value set at`
func main() {}
