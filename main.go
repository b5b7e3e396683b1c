// MirrorCrypt: mirror-field stream cipher CLI.
//
// Encryption and decryption are the same operation: a message is piped
// character by character through an Engine loaded from a key file, and the
// engine's in-memory grid and perimeter mutate as the stream is processed
// (the key file itself is only read). Both
// ends of a conversation must start from byte-identical key files.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mirrorcrypt/internal/keyfile"
	"mirrorcrypt/internal/mirrorengine"
	"mirrorcrypt/internal/ui"

	"golang.org/x/term"
	qr "rsc.io/qr"
)

var version = "dev"

const defaultKeyDir = ".mirrorcrypt"
const defaultKeyName = "key"

func defaultKeyPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(defaultKeyDir, defaultKeyName)
	}
	return filepath.Join(home, defaultKeyDir, defaultKeyName)
}

func usage() {
	prog := filepath.Base(os.Args[0])

	fmt.Println(ui.Banner(version))
	fmt.Println()

	fmt.Println(ui.Style("Usage:", ui.Bold, ui.Blue))
	fmt.Printf("  %s %s\n", prog, ui.Style("[options] [text ...]", ui.Cyan))
	fmt.Println()

	fmt.Println(ui.Style("Flags:", ui.Bold, ui.Blue))
	fmt.Println(ui.Style("  --key  --genkey  --passphrase  --auto-create  --fingerprint  --qr  --debug-ms  --self-test  --no-color  --version", ui.Cyan))
	fmt.Println()

	fmt.Println(ui.Style("About:", ui.Bold, ui.Blue))
	fmt.Println(ui.Style("  Reads text from the arguments, or from stdin if none are given, and", ui.Gray))
	fmt.Println(ui.Style("  crypts it one character at a time through the mirror field in --key.", ui.Gray))
	fmt.Println(ui.Style("  Running the same command again on the output recovers the input.", ui.Gray))
	fmt.Println()

	fmt.Printf("  %s --genkey --key ./demo.key\n", prog)
	fmt.Printf("  %s --key ./demo.key 'hello there'\n", prog)
	fmt.Printf("  %s --help\n", prog)
}

func main() {
	keyPath := flag.String("key", defaultKeyPath(), "Path to the key file")
	genKey := flag.Bool("genkey", false, "Generate a new key file at --key and exit")
	passphrase := flag.Bool("passphrase", false, "Securely prompt for a passphrase to seed key generation (with --genkey)")
	autoCreate := flag.Bool("auto-create", true, "Auto-create --key (with a fresh random key) if it does not exist")
	fingerprint := flag.Bool("fingerprint", false, "Print the fingerprint of --key and exit")
	showQR := flag.Bool("qr", false, "Display a QR code of the key fingerprint (with --fingerprint)")
	debugMs := flag.Uint("debug-ms", 0, "Animate the mirror-field traversal, sleeping this many milliseconds per step")
	selfTest := flag.Bool("self-test", false, "Generate a throwaway key and verify the round-trip and determinism laws")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *versionFlag {
		fmt.Println(version)
		return
	}

	ui.SetColorEnabled(!*noColor && term.IsTerminal(int(syscall.Stdout)))

	if *selfTest {
		os.Exit(runSelfTest())
	}

	if *genKey {
		if err := doGenKey(*keyPath, *passphrase); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		fmt.Printf("%s %s\n", ui.Style("Wrote key:", ui.Bold, ui.Green), *keyPath)
		return
	}

	store, err := keyfile.Open(*keyPath, *autoCreate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if *fingerprint {
		if err := doFingerprint(store, *showQR); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		return
	}

	if flag.NArg() == 0 && term.IsTerminal(int(syscall.Stdin)) {
		usage()
		return
	}

	engine, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	defer engine.Close()

	input, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	out, err := cryptAll(engine, input, time.Duration(*debugMs)*time.Millisecond)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	os.Stdout.Write(out)
	if len(out) == 0 || out[len(out)-1] != '\n' {
		fmt.Println()
	}
}

func readInput(args []string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(strings.Join(args, " ")), nil
	}
	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return data, nil
}

func cryptAll(e *mirrorengine.Engine, in []byte, stepDelay time.Duration) ([]byte, error) {
	out := make([]byte, 0, len(in))

	var drawer *ui.GridDrawer
	if stepDelay > 0 {
		drawer = ui.NewGridDrawer(os.Stdout)
	}

	for _, ch := range in {
		if ch == '\r' {
			continue
		}
		var o byte
		var err error
		if drawer != nil {
			trace := drawer.TraceCallback(e.Snapshot, stepDelay)
			o, err = e.CryptWithTrace(ch, trace)
		} else {
			o, err = e.Crypt(ch)
		}
		if err != nil {
			return nil, fmt.Errorf("crypting %q: %w", ch, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func doGenKey(path string, usePassphrase bool) error {
	var rng *rand.Rand
	if usePassphrase {
		pass, err := keyfile.PromptForPassphrase()
		if err != nil {
			return err
		}
		rng = keyfile.SeedFromPassphrase(pass, keyfile.DefaultPassphrasePolicy())
	}
	return keyfile.Create(path, rng)
}

func doFingerprint(store *keyfile.Store, showQR bool) error {
	decoded, err := store.DecodedBytes()
	if err != nil {
		return err
	}
	fp := keyfile.Fingerprint(decoded)
	fmt.Printf("%s %s\n", ui.Style("Fingerprint:", ui.Bold, ui.Cyan), fp)

	if !showQR {
		return nil
	}
	code, err := qr.Encode(fp, qr.M)
	if err != nil {
		fmt.Println("(QR generation failed)")
		return nil
	}
	size := code.Size
	for y := 0; y < size; y += 2 {
		var line strings.Builder
		for x := 0; x < size; x++ {
			top := code.Black(x, y)
			bottom := false
			if y+1 < size {
				bottom = code.Black(x, y+1)
			}
			switch {
			case top && bottom:
				line.WriteRune('█')
			case top && !bottom:
				line.WriteRune('▀')
			case !top && bottom:
				line.WriteRune('▄')
			default:
				line.WriteByte(' ')
			}
		}
		fmt.Println(line.String())
	}
	return nil
}

// runSelfTest generates a throwaway key and drives both the round-trip law
// and the determinism law, reporting PASS/FAIL for each.
func runSelfTest() int {
	seed := time.Now().UnixNano()
	key := mirrorengine.NewKeyGenerator(rand.New(rand.NewSource(seed))).Generate()

	message := make([]byte, 256)
	r := rand.New(rand.NewSource(seed ^ 0x5a5a5a5a))
	for i := range message {
		message[i] = mirrorengine.Alphabet[r.Intn(len(mirrorengine.Alphabet))]
	}

	failed := 0

	encEngine, err := mirrorengine.LoadKey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "self-test: load key: %v\n", err)
		return 1
	}
	cipher, err := mirrorengine.CryptStream(encEngine, message)
	encEngine.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "self-test: encrypt: %v\n", err)
		return 1
	}

	decEngine, err := mirrorengine.LoadKey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "self-test: load key: %v\n", err)
		return 1
	}
	recovered, err := mirrorengine.CryptStream(decEngine, cipher)
	decEngine.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "self-test: decrypt: %v\n", err)
		return 1
	}

	roundTripOK := string(recovered) == string(message)
	if !roundTripOK {
		failed++
	}
	fmt.Printf("%s %s\n", ui.Style("Round-trip:", ui.Bold), resultLabel(roundTripOK))

	detEngine1, _ := mirrorengine.LoadKey(key)
	detEngine2, _ := mirrorengine.LoadKey(key)
	c1, _ := mirrorengine.CryptStream(detEngine1, message)
	c2, _ := mirrorengine.CryptStream(detEngine2, message)
	detEngine1.Close()
	detEngine2.Close()
	determOK := string(c1) == string(c2)
	if !determOK {
		failed++
	}
	fmt.Printf("%s %s\n", ui.Style("Determinism:", ui.Bold), resultLabel(determOK))

	fmt.Printf("%s %s\n", ui.Style("Seed:", ui.Bold, ui.Gray), strconv.FormatInt(seed, 10))

	return failed
}

func resultLabel(ok bool) string {
	if ok {
		return ui.Style("PASSED", ui.Bold, ui.Green)
	}
	return ui.Style("FAILED", ui.Bold, ui.Red)
}
