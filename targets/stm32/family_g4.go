//go:build stm32 && !stm32f1 && !stm32f4

package main

const familyName = "stm32g4"
