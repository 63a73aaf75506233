package main

import (
	"fmt"
	"os"

	"github.com/bitcoinecho/scriptvm/pkg/composer"
	"github.com/bitcoinecho/scriptvm/pkg/opcodes"
	"go.uber.org/zap"
)

const (
	Name    = "scriptvm"
	Version = "0.1.0-dev"
)

func main() {
	fmt.Printf("%s v%s\n", Name, Version)
	fmt.Println("A Bitcoin Cash authentication script VM")
	fmt.Println("")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			printVersion()
		case "help":
			printHelp()
		case "demo":
			runDemo()
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	} else {
		printHelp()
	}
}

func printVersion() {
	fmt.Printf("%s version %s\n", Name, Version)
	fmt.Println("Built with Go")
}

func printHelp() {
	fmt.Printf("Usage: %s [command]\n", Name)
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  help        Show this help message")
	fmt.Println("  version     Show version information")
	fmt.Println("  demo        Evaluate a sample P2PKH-shaped authentication program")
	fmt.Println("  (no args)   Show this help message")
}

func runDemo() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	comp := composer.New(logger)

	// A locking script shaped like P2PKH's OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY,
	// stopping short of OP_CHECKSIG so this demo needs no real key material —
	// the point is to show the composer's unlock -> lock wiring, not produce a
	// signature.
	pubKeyHashPlaceholder := []byte{0xab}
	hash := comp.Crypto.Hash160(pubKeyHashPlaceholder)

	unlockingScript := append([]byte{byte(len(pubKeyHashPlaceholder))}, pubKeyHashPlaceholder...)
	lockingScript := []byte{opcodes.OP_DUP, opcodes.OP_HASH160, byte(len(hash))}
	lockingScript = append(lockingScript, hash[:]...)
	lockingScript = append(lockingScript, opcodes.OP_EQUALVERIFY)

	result := composer.Run(comp, composer.Program{
		UnlockingScript: unlockingScript,
		LockingScript:   lockingScript,
	})

	fmt.Println("📜 Evaluating sample authentication program...")
	fmt.Println("")
	for _, pass := range result.Passes {
		fmt.Printf("== %s ==\n", pass.Name)
		for _, step := range pass.Steps {
			fmt.Printf("  %-12s %s\n", step.Asm, step.Description)
		}
	}
	fmt.Println("")

	if result.Error != nil {
		fmt.Printf("⚠️  Program rejected: %v\n", result.Error)
		os.Exit(1)
	}
	fmt.Println("✅ Program accepted")
}
