// Read-only store inspector. Opens the badger directory next to a running
// server (lock guard bypassed) and prints message or notification rows.
//
//	go run ./cmd/inspect -db ./data/badger -prefix msg:
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"chat-desk/domain"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or ntf:)")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "From", "To", "Detail", "Read", "At"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Skip the secondary pointer entries, they carry no payload.
			if strings.HasPrefix(key, "msgid:") || strings.HasPrefix(key, "ntfid:") || strings.HasPrefix(key, "unread:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(rowFor(key, v))
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
	color.Green.Printf("\n%d rows under prefix %q\n", rows, *prefix)
}

func rowFor(key string, value []byte) []string {
	if strings.HasPrefix(key, "ntf:") {
		var n domain.Notification
		if err := json.Unmarshal(value, &n); err != nil {
			return []string{key, "", "", "unmarshal error: " + err.Error(), "", ""}
		}
		origin := "system"
		if n.OriginID != nil {
			origin = *n.OriginID
		}
		return []string{shorten(key), origin, n.TargetID, n.Text, "-", n.CreatedAt.Format(time.RFC3339)}
	}

	var m domain.Message
	if err := json.Unmarshal(value, &m); err != nil {
		return []string{key, "", "", "unmarshal error: " + err.Error(), "", ""}
	}
	detail := m.Body
	if m.Attachment != nil {
		detail = fmt.Sprintf("%s [%s: %s]", detail, m.Attachment.Category, m.Attachment.Filename)
	}
	return []string{shorten(key), m.SenderID, m.ReceiverID, detail, fmt.Sprint(m.Read), m.CreatedAt.Format(time.RFC3339)}
}

func shorten(key string) string {
	if len(key) > 48 {
		return key[:45] + "..."
	}
	return key
}
