// Command inspect dumps the stored message log of a room for debugging.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"lexchat/domain"
)

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	room := flag.String("room", "", "Room key to dump (empty scans every room)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("missing -db flag")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Sent At", "Room", "Sender", "Recipient", "Kind", "Lang", "Read", "Body"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	prefix := []byte("msg:")
	if *room != "" {
		prefix = []byte("msg:" + *room + ":")
	}

	total, unread := 0, 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var m domain.Message
				if err := json.Unmarshal(v, &m); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}
				read := color.Green.Sprint("yes")
				if !m.Read {
					read = color.Red.Sprint("no")
					unread++
				}
				total++
				table.Append([]string{
					m.SentAt.Format("2006-01-02 15:04:05"),
					m.Room, m.SenderID, m.RecipientID,
					string(m.Kind), m.Language, read, m.Body,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("scan failed: ", err)
	}

	table.Render()
	color.Cyan.Printf("%d messages, %d unread\n", total, unread)
}
