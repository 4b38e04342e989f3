//go:build stm32 && stm32f1

package main

const familyName = "stm32f1"
