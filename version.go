package main

const Version = "v0.2.0"
