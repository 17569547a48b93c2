package background

import (
	"context"
	"log"

	"github.com/g15tools/G15Manager/system/shared"
	"github.com/g15tools/G15Manager/util"
)

// Notifier drains notifications to the desktop session
type Notifier struct {
	C chan util.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{
		C: make(chan util.Notification, 10),
	}
}

func (n *Notifier) String() string {
	return "Notifier"
}

// Serve satisfies suture.Service
func (n *Notifier) Serve(haltCtx context.Context) error {
	log.Println("[notifier] starting notify loop")
	for {
		select {
		case msg := <-n.C:
			if err := util.SendDesktopNotification(shared.AppName, msg); err != nil {
				log.Printf("[notifier] cannot send desktop notification: %+v\n", err)
			}
		case <-haltCtx.Done():
			log.Println("[notifier] exiting notify loop")
			return nil
		}
	}
}
