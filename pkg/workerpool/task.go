package workerpool

// Task определяет контракт задачи для пула
type Task interface {
	Run()
}

// TaskFunc позволяет передавать обычную функцию как Task
type TaskFunc func()

// Run вызывает f()
func (f TaskFunc) Run() { f() }

type messageKind uint8

const (
	msgTask messageKind = iota
	msgKill
)

// message элемент общей очереди: задача или сигнал завершения воркера
type message struct {
	kind messageKind
	task Task
}

func taskMessage(t Task) message {
	return message{kind: msgTask, task: t}
}

var killMessage = message{kind: msgKill}
