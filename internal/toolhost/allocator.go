package toolhost

import "github.com/apache/arrow/go/v15/arrow/memory"

var memoryAllocator = memory.NewGoAllocator()
